package service

const (
	textDirectoryHeader = "Birthday list. Pick a month, then a day, to fill in a birthday."
	textEmptyDirectory  = "There is nobody in the birthday channel yet."
	textWrongCommand    = "Wrong command. Use `manager @user` to assign the birthday manager."
	textFallback        = "Man, I don't understand you. I'm just a bot, you know..\nTry typing `help` to see what I can do."
	textManagerSet      = "<@%s> is now the birthday manager."
	textViewerLink      = "Read-only birthday list, valid for 24 hours: %s"
	textWelcome         = "Get Ready To Work With <@%s>!"
	textGreeting        = "Hello, <@%s> !"

	textHelp = "Here is what I can do:\n" +
		"• `list` shows every birthday with menus to fill in a month and a day\n" +
		"• `manager @user` lets that person manage birthdays too\n" +
		"• `link` sends a read-only web link to the birthday list\n" +
		"• `help` shows this message"
)
