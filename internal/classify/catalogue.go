package classify

import (
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// CatalogueFile is the default filename for a project call-shape catalogue.
const CatalogueFile = "catalogue.toml"

// Catalogue is the declarative table of framework call shapes the body-level
// classifier matches against. Matching is deliberately approximate: receiver
// type names match by substring, method names match exactly. False positives
// and negatives are an accepted trade-off of name-based matching.
type Catalogue struct {
	MQ    CallShape  `toml:"mq"`
	HTTP  HTTPShape  `toml:"http"`
	Flush FlushShape `toml:"flush"`
}

// CallShape pairs receiver-type name patterns with a method name set.
type CallShape struct {
	Receivers []string `toml:"receivers"`
	Methods   []string `toml:"methods"`
}

// HTTPShape extends CallShape with type-level annotations that mark a whole
// containing type as a remote-HTTP-client proxy.
type HTTPShape struct {
	Receivers        []string `toml:"receivers"`
	Methods          []string `toml:"methods"`
	ProxyAnnotations []string `toml:"proxy_annotations"`
}

// FlushShape lists explicit-flush method names; any receiver matches.
type FlushShape struct {
	Methods []string `toml:"methods"`
}

// Matches reports whether a call with the given receiver type and method
// name matches the shape.
func (s CallShape) Matches(receiverType, methodName string) bool {
	return matchReceiver(s.Receivers, receiverType) && matchMethod(s.Methods, methodName)
}

// Matches reports whether a call matches the HTTP client shape.
func (s HTTPShape) Matches(receiverType, methodName string) bool {
	return matchReceiver(s.Receivers, receiverType) && matchMethod(s.Methods, methodName)
}

// Matches reports whether the method name is an explicit-flush operation.
func (s FlushShape) Matches(methodName string) bool {
	return matchMethod(s.Methods, methodName)
}

func matchReceiver(patterns []string, receiverType string) bool {
	if receiverType == "" {
		return false
	}
	for _, p := range patterns {
		if strings.Contains(receiverType, p) {
			return true
		}
	}
	return false
}

func matchMethod(names []string, methodName string) bool {
	for _, n := range names {
		if n == methodName {
			return true
		}
	}
	return false
}

// DefaultCatalogue returns the built-in call-shape table covering the common
// Spring messaging, HTTP client and JPA flush APIs.
func DefaultCatalogue() *Catalogue {
	return &Catalogue{
		MQ: CallShape{
			Receivers: []string{
				"KafkaTemplate",
				"RabbitTemplate",
				"JmsTemplate",
				"SqsTemplate",
				"StreamBridge",
			},
			Methods: []string{
				"send",
				"sendDefault",
				"sendAndReceive",
				"convertAndSend",
				"convertSendAndReceive",
			},
		},
		HTTP: HTTPShape{
			Receivers: []string{
				"RestTemplate",
				"WebClient",
				"RestClient",
				"HttpClient",
				"OkHttpClient",
			},
			Methods: []string{
				"getForObject",
				"getForEntity",
				"postForObject",
				"postForEntity",
				"exchange",
				"execute",
				"put",
				"delete",
				"get",
				"post",
				"patch",
				"retrieve",
				"send",
				"sendAsync",
				"newCall",
			},
			ProxyAnnotations: []string{"FeignClient", "HttpExchange"},
		},
		Flush: FlushShape{
			Methods: []string{"flush", "saveAndFlush", "saveAllAndFlush"},
		},
	}
}

// LoadCatalogue reads a catalogue from a TOML file. A missing path yields the
// default catalogue; a present but malformed file is an error.
func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCatalogue(), nil
		}
		return nil, err
	}

	var cat Catalogue
	if err := toml.Unmarshal(data, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Save writes the catalogue as TOML, so projects can extend the shape table
// without rebuilding the tool.
func (c *Catalogue) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
