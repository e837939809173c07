package config

import (
	"fmt"
	"os"
	"strings"
)

// Template returns the starter file for kind: "service" for the codec
// service, "cli" for dictctl.
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "service":
		return serviceTemplate, nil
	case "cli":
		return cliTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serviceTemplate = `name = "dictwire"
addr = ":9200"
cors_origins = ["http://localhost:3000"]
dictionaries = ["dictionaries/fix44.xml"]
templates = ["templates/orders.xml"]

[fix]
charset = "ISO-8859-1"
keep_derived = false

[fast]
datetime_unit = "millisecond"
max_payload_bytes = 8388608

[diff]
compare_field_order = false
check_by_first = false
deep_check = true
typed_check = false
`

const cliTemplate = `dictionaries = []
templates = []
fix_charset = "ISO-8859-1"
fix_keep_derived = false
fast_datetime_unit = "millisecond"
fast_max_payload_bytes = 8388608
diff_compare_field_order = false
diff_check_by_first = false
diff_deep_check = true
diff_typed_check = false
`
