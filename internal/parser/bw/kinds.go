// File path: internal/parser/bw/kinds.go
package bw

import (
	"strings"

	"github.com/nicodishanthj/Katral_bw/internal/ir"
)

var kindTable = buildKindTable(map[ir.ActivityKind][]string{
	ir.ActivityDataAccess: {
		"data-access", "jdbc", "sql", "database", "jdbcquery", "jdbcupdate", "jdbccall",
		"JDBCQueryActivity", "JDBCUpdateActivity", "JDBCCallActivity", "SQLDirectActivity",
	},
	ir.ActivityMessagingSend: {
		"messaging-send", "jms", "jmssend", "publish", "mqput",
		"JMSQueueSendActivity", "JMSTopicPublishActivity", "JMSQueueRequestReplyActivity",
	},
	ir.ActivityMessagingReceive: {
		"messaging-receive", "jmsreceive", "subscribe", "mqget",
		"JMSQueueEventSource", "JMSTopicEventSource", "GetJMSQueueMessageActivity",
		"WaitForJMSQueueMessageActivity", "JMSQueueReceiveActivity",
	},
	ir.ActivityOutboundCall: {
		"outbound-call", "http", "rest", "soap", "invoke",
		"SendHTTPRequestActivity", "SOAPSendRequestActivity", "SOAPRequestReplyActivity",
		"InvokeRESTAPIActivity", "CallProcessActivity",
	},
	ir.ActivityInboundCall: {
		"inbound-call", "receive", "httpreceiver", "restreceiver", "soapreceiver",
		"HTTPEventSource", "SOAPEventSource", "RESTEventSource", "HTTPReceiverActivity",
	},
})

func buildKindTable(groups map[ir.ActivityKind][]string) map[string]ir.ActivityKind {
	table := make(map[string]ir.ActivityKind)
	for kind, names := range groups {
		for _, name := range names {
			table[normalizeKind(name)] = kind
		}
	}
	return table
}

// normalizeKind reduces "com.tibco.plugin.jdbc.JDBCQueryActivity" and
// "data-access" alike to a lowercase lookup key.
func normalizeKind(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.LastIndexAny(value, ".:/"); idx >= 0 {
		value = value[idx+1:]
	}
	value = strings.ToLower(value)
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(value)
}

// LookupKind classifies a declared activity type.
func LookupKind(declared string) (ir.ActivityKind, bool) {
	kind, ok := kindTable[normalizeKind(declared)]
	return kind, ok
}
