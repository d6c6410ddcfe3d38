package transcription

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeOptions decodes a generic provider config map (as passed to a
// provider.Factory) into out. Duration strings such as "90s" are accepted.
func DecodeOptions(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("transcription: options decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("transcription: decode options: %w", err)
	}
	return nil
}
