package redis

// Key prefixes for primary entity storage.
const (
	prefixMessage = "smsrelay:sms:"
	prefixRule    = "smsrelay:rule:"
)

// keyTransport holds the singleton transport configuration.
const keyTransport = "smsrelay:transport:active"

// Key prefixes for sorted set indexes.
const (
	zMessageAll       = "smsrelay:z:sms:all"
	zMessageForwarded = "smsrelay:z:sms:forwarded"
	zMessageStatus    = "smsrelay:z:sms:status:" // + status
	zRuleAll          = "smsrelay:z:rule:all"
	zRuleEnabled      = "smsrelay:z:rule:enabled"
)

// entityKey returns the primary key for an entity.
func entityKey(prefix, id string) string {
	return prefix + id
}

// statusKey returns the sorted set of messages with the given status.
func statusKey(status string) string {
	return zMessageStatus + status
}
