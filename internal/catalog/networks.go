package catalog

import "strings"

// Provider service ids for the supported mobile networks. etisalat is
// the old name for 9mobile and maps to the same service.
var serviceIDs = map[string]string{
	"mtn":      "mtn",
	"glo":      "glo",
	"airtel":   "airtel",
	"9mobile":  "9mobile",
	"etisalat": "9mobile",
}

func ServiceID(network string) (string, bool) {
	id, ok := serviceIDs[strings.ToLower(network)]
	return id, ok
}

func Networks() []string {
	return []string{"mtn", "glo", "airtel", "9mobile"}
}
