package view_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/msomdec/birthday-bot/internal/view"
)

func TestDirectoryTableEscapesNames(t *testing.T) {
	var buf bytes.Buffer
	rows := []view.Row{
		{Name: "<script>alert(1)</script>", Date: "March 5", Complete: true},
		{Name: "Bob", Date: "June", Complete: false},
	}
	if err := view.DirectoryTable(rows).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := buf.String()

	if strings.Contains(html, "<script>alert") {
		t.Fatal("expected member name to be escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Fatalf("expected escaped name in output, got %s", html)
	}
	if !strings.Contains(html, `<tr class="incomplete"><td>Bob</td><td>June</td></tr>`) {
		t.Fatalf("expected incomplete row for Bob, got %s", html)
	}
}

func TestDirectoryTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := view.DirectoryTable(nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "Nobody here yet.") {
		t.Fatalf("expected empty notice, got %s", buf.String())
	}
}

func TestDirectoryPageWrapsTable(t *testing.T) {
	var buf bytes.Buffer
	rows := []view.Row{{Name: "Alice", Date: "March 5", Complete: true}}
	if err := view.DirectoryPage(rows).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := buf.String()
	for _, want := range []string{`id="` + view.TableID + `"`, "Alice", "/birthdays/refresh"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestDirectoryTableEscapesDates(t *testing.T) {
	var buf bytes.Buffer
	rows := []view.Row{{Name: "Alice", Date: `"><img src=x>`, Complete: true}}
	if err := view.DirectoryTable(rows).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(buf.String(), "<img") {
		t.Fatalf("expected date to be escaped, got %s", buf.String())
	}
}

func TestDirectoryPageLoadsDatastar(t *testing.T) {
	var buf bytes.Buffer
	if err := view.DirectoryPage(nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, `src="`+view.DatastarScript+`"`) {
		t.Fatalf("expected datastar bundle %s, got %s", view.DatastarScript, html)
	}
	if !strings.Contains(html, `data-on:click="@get('/birthdays/refresh')"`) {
		t.Fatalf("expected refresh action in datastar 1.0 attribute syntax, got %s", html)
	}
}

func TestErrorPage(t *testing.T) {
	var buf bytes.Buffer
	err := view.ErrorPage(401, "Link Expired", "Ask for a <new> link.").Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"<title>401 Link Expired</title>", "<h1>Link Expired</h1>", "Ask for a &lt;new&gt; link."} {
		if !strings.Contains(html, want) {
			t.Errorf("expected error page to contain %q, got %s", want, html)
		}
	}
}
