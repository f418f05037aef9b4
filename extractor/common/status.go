package common

import (
	"strings"

	"github.com/spf13/viper"
)

// StatusTable folds the providers' differing status phrasings into canonical
// labels. The refund literal is special: it must never be absorbed into
// another bucket.
type StatusTable struct {
	Refund string
	Groups map[string][]string
}

// LoadStatusTable reads the synonym groups from the loaded configuration.
func LoadStatusTable() StatusTable {
	return StatusTable{
		Refund: viper.GetString("status.refund"),
		Groups: viper.GetStringMapStringSlice("status.groups"),
	}
}

// Normalize trims the status and returns the canonical label of its synonym
// group. The refund literal and any unknown status pass through verbatim, so
// normalization never loses information.
func (t StatusTable) Normalize(status string) string {
	status = strings.TrimSpace(status)
	if status == t.Refund {
		return status
	}
	for canonical, synonyms := range t.Groups {
		for _, s := range synonyms {
			if status == s {
				return canonical
			}
		}
	}
	return status
}
