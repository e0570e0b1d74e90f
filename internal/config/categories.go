package config

// DefaultAckRoleID is the role allowed to acknowledge orders and messages.
const DefaultAckRoleID = "1438610222267633734"

// Category maps a Discord category to its two output channels.
type Category struct {
	ID                string
	Name              string
	OrdersChannelID   string
	MessagesChannelID string
}

var categories = []Category{
	{ID: "1438682137619468318", Name: "Anjevinian", OrdersChannelID: "1453946617295012003", MessagesChannelID: "1453946725831282708"},
	{ID: "1438682567778766928", Name: "Communist Party of Tinh Hai", OrdersChannelID: "1453947205441425570", MessagesChannelID: "1453947310449885238"},
	{ID: "1438683810228211894", Name: "National Tinh Hai Party", OrdersChannelID: "1453947396177395873", MessagesChannelID: "1453947529422176327"},
	{ID: "1438684269001179237", Name: "Kampotian Liberation Army", OrdersChannelID: "1453947655813206169", MessagesChannelID: "1453947757164499025"},
	{ID: "1438685313085214781", Name: "Free Laonam", OrdersChannelID: "1453947848285618299", MessagesChannelID: "1453947946369417259"},
	{ID: "1438684432453337210", Name: "Kwangchoan Peoples' Front", OrdersChannelID: "1453948101562859581", MessagesChannelID: "1453948192457621585"},
	{ID: "1438685650248401073", Name: "Laonam Protectorate", OrdersChannelID: "1453948278411624478", MessagesChannelID: "1453948350796926996"},
}

// Categories returns a copy of the compiled category table, in scan order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// OutputChannelIDs returns every destination channel in cats.
// These channels are never scanned.
func OutputChannelIDs(cats []Category) map[string]struct{} {
	out := make(map[string]struct{}, len(cats)*2)
	for _, c := range cats {
		out[c.OrdersChannelID] = struct{}{}
		out[c.MessagesChannelID] = struct{}{}
	}
	return out
}
