package conversation

// State identifies the menu screen a conversation is currently on.
type State int

const (
	StateMainMenu State = iota
	StateChoosingAsset
	StateChoosingCurrency
	StateTypingSearch
	StateCompareSelection
)

func (s State) String() string {
	switch s {
	case StateMainMenu:
		return "main_menu"
	case StateChoosingAsset:
		return "choosing_asset"
	case StateChoosingCurrency:
		return "choosing_currency"
	case StateTypingSearch:
		return "typing_search"
	case StateCompareSelection:
		return "compare_selection"
	default:
		return "unknown"
	}
}

// Callback keys understood by the engine. Asset and currency choices carry
// their identifier in the payload (crypto:<id>, currency:<code>).
const (
	KeyMainMenu = "main_menu"
	KeyTop100   = "top100"
	KeyTrending = "trending"
	KeySearch   = "search"
	KeyQuit     = "quit"
	KeyCrypto   = "crypto"
	KeyCurrency = "currency"
	KeyCompare  = "compare_selection"
)

// SupportedCurrencies lists the unit currencies offered after an asset is
// chosen, in display order.
var SupportedCurrencies = []string{"usd", "eur", "gbp", "jpy", "aud", "cad", "chf", "cny", "inr"}
