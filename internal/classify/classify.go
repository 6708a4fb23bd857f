// File path: internal/classify/classify.go
package classify

import (
	"strings"
	"unicode"

	"github.com/nicodishanthj/Katral_bw/internal/ir"
)

// transport-like keys whose values name a protocol.
var transportKeys = []string{"transport", "protocol", "binding", "channel", "type"}

// Words naming a transport. A word may also start with the prefix, as in
// "httpreceiver", but "rest" must match whole: "restaurant" is not REST.
var (
	httpWords = transportWords{exact: []string{"rest", "restful"}, prefix: "http"}
	soapWords = transportWords{prefix: "soap"}
)

type transportWords struct {
	exact  []string
	prefix string
}

func (w transportWords) match(token string) bool {
	if w.prefix != "" && strings.HasPrefix(token, w.prefix) {
		return true
	}
	for _, word := range w.exact {
		if token == word {
			return true
		}
	}
	return false
}

// Classify infers target service styles from inbound-call activities. The
// result lists styles in the order their first signal appears. With no
// signal both REST and SOAP are returned. Classify has no side effects.
func Classify(activities []ir.Activity) ir.StyleSet {
	var styles ir.StyleSet
	for _, activity := range activities {
		if activity.Kind != ir.ActivityInboundCall {
			continue
		}
		if IsHTTPShaped(activity) {
			styles = styles.Add(ir.StyleREST)
		}
		if IsSOAPShaped(activity) {
			styles = styles.Add(ir.StyleSOAP)
		}
	}
	if len(styles) == 0 {
		return ir.StyleSet{ir.StyleREST, ir.StyleSOAP}
	}
	return styles
}

// FromOverride maps a configured service type onto a style set.
func FromOverride(value string) (ir.StyleSet, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "rest":
		return ir.StyleSet{ir.StyleREST}, true
	case "soap":
		return ir.StyleSet{ir.StyleSOAP}, true
	case "combined", "both", "rest+soap":
		return ir.StyleSet{ir.StyleREST, ir.StyleSOAP}, true
	}
	return nil, false
}

// IsHTTPShaped reports whether an activity's raw attributes describe a
// plain HTTP or REST endpoint.
func IsHTTPShaped(activity ir.Activity) bool {
	if transportNames(activity, httpWords) {
		return true
	}
	for key := range activity.Attributes {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "http.") || strings.HasPrefix(lower, "rest.") {
			return true
		}
		switch lower {
		case "method", "url", "path", "uri", "resourcepath":
			return true
		}
	}
	return false
}

// IsSOAPShaped reports whether an activity's raw attributes describe a SOAP
// endpoint.
func IsSOAPShaped(activity ir.Activity) bool {
	if transportNames(activity, soapWords) {
		return true
	}
	for key := range activity.Attributes {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "soap.") {
			return true
		}
		switch lower {
		case "soapaction", "wsdl", "operation", "porttype":
			return true
		}
	}
	return false
}

func transportNames(activity ir.Activity, words transportWords) bool {
	for _, key := range transportKeys {
		for _, token := range Tokens(activity.Attr(key)) {
			if words.match(token) {
				return true
			}
		}
	}
	return false
}

// Tokens splits a value such as "com.tibco.plugin.soap.SOAPEventSource" into
// lower-case words at punctuation and camel-case boundaries.
func Tokens(value string) []string {
	var (
		out  []string
		word []rune
	)
	flush := func() {
		if len(word) > 0 {
			out = append(out, strings.ToLower(string(word)))
			word = word[:0]
		}
	}
	runes := []rune(value)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(word) > 0 {
			prev := word[len(word)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			// "loanRequest" and the "R" in "HTTPReceiver" start new words.
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		word = append(word, r)
	}
	flush()
	return out
}
