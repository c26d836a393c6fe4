package provider

import (
	"strings"

	"github.com/aschepis/aichat/llm"
)

// officialKeyPrefix marks credentials issued by the provider itself, as
// opposed to keys issued by the proxy relay.
const officialKeyPrefix = "sk-"

// ValidateKey checks that the credential matches the selected transport mode.
// Proxy mode requires a proxy-issued key; direct mode requires an official
// one. Sessions call this once, lazily, before their first request.
func ValidateKey(proxy bool, apiKey string) error {
	official := strings.HasPrefix(apiKey, officialKeyPrefix)
	if proxy && official {
		return llm.NewConfigError(
			"proxy mode is enabled but an official provider API key was supplied; " +
				"disable proxy mode or use the key issued by the proxy service")
	}
	if !proxy && !official {
		return llm.NewConfigError(
			"the supplied API key does not look like an official provider key; " +
				"enable proxy mode to use a proxy-issued key, or supply a key starting with \"sk-\"")
	}
	return nil
}
