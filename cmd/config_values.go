package cmd

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/vidfetch/vidfetch/config"
	"github.com/vidfetch/vidfetch/extractor"
	"github.com/vidfetch/vidfetch/icon"
	"github.com/vidfetch/vidfetch/key"
)

// configValidators reject values the rest of the program would silently replace with a default.
var configValidators = map[string]func(value any) error{
	key.CDNBase:          httpURL(false),
	key.FetchProxy:       httpURL(true),
	key.FetchReferer:     httpURL(true),
	key.FetchTimeout:     atLeast(1),
	key.FetchRetries:     between(0, 10),
	key.DownloadDelayMin: atLeast(0),
	key.DownloadDelayMax: atLeast(0),
	key.DownloadQuality:  oneOf(extractor.Qualities()...),
	key.LogsLevel: func(value any) error {
		_, err := logrus.ParseLevel(value.(string))
		return err
	},
	key.IconsVariant:   oneOf(icon.AvailableVariants()...),
	key.TUIPopupLength: atLeast(20),
}

// parseConfigValue converts raw into the type of field's default and validates it.
func parseConfigValue(field config.Field, raw []string) (any, error) {
	var value any

	switch field.Value.(type) {
	case string:
		value = strings.TrimSpace(raw[0])
	case int:
		n, err := strconv.Atoi(strings.TrimSpace(raw[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid integer value for %s: %s", field.Key, raw[0])
		}
		value = n
	case bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value for %s: %s", field.Key, raw[0])
		}
		value = b
	case []string:
		value = raw
	default:
		return nil, fmt.Errorf("unsupported type for %s", field.Key)
	}

	if validate, ok := configValidators[field.Key]; ok {
		if err := validate(value); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", field.Key, err)
		}
	}

	return value, nil
}

func oneOf(options ...string) func(any) error {
	return func(value any) error {
		if lo.Contains(options, value.(string)) {
			return nil
		}
		return fmt.Errorf("expected one of %s", strings.Join(options, ", "))
	}
}

func atLeast(lower int) func(any) error {
	return func(value any) error {
		if value.(int) < lower {
			return fmt.Errorf("must be at least %d", lower)
		}
		return nil
	}
}

func between(lower, upper int) func(any) error {
	return func(value any) error {
		if n := value.(int); n < lower || n > upper {
			return fmt.Errorf("must be between %d and %d", lower, upper)
		}
		return nil
	}
}

func httpURL(allowEmpty bool) func(any) error {
	return func(value any) error {
		s := value.(string)
		if s == "" && allowEmpty {
			return nil
		}

		u, err := url.Parse(s)
		if err != nil {
			return err
		}
		if u.Host == "" || !lo.Contains([]string{"http", "https", "socks5"}, u.Scheme) {
			return fmt.Errorf("%q is not an absolute http(s) URL", s)
		}
		return nil
	}
}
