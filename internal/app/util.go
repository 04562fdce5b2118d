package app

import "time"

// shortAddress truncates a wallet address to 0x1234...abcd form for
// human-readable messages.
func shortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// formatMillis renders an epoch-ms timestamp for alert messages.
func formatMillis(ms int64) string {
	return msToTime(ms).Format("2006-01-02 15:04:05")
}
