package bot

// Command constants for Telegram bot commands.
const (
	CommandStart   = "/start"
	CommandHelp    = "/help"
	CommandInsert  = "/insert"
	CommandSelect  = "/select"
	CommandReturn  = "/return"
	CommandDisplay = "/display"
	CommandTray    = "/tray"
	CommandStatus  = "/status"
	CommandReset   = "/reset"
	CommandHistory = "/history"
)

// Callback prefix constants for inline button interactions.
const (
	CallbackCoin    = "coin_"
	CallbackProduct = "product_"
	CallbackReturn  = "return"
	CallbackDisplay = "display"
)
