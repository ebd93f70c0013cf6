package agent

import "time"

// Timeout is the maximum age of a transaction-table entry before the
// expiry scan removes it.
const Timeout = 300 * time.Second

// entry records enough of a downstream BOOTREQUEST to route its matching
// BOOTREPLY back to the port it arrived on: the origin port name, the
// sender's source IP and MAC as observed on that port, and the insertion
// time for ageing.
type entry struct {
	originPort string
	srcIP      string
	srcMAC     string
	stamp      time.Time
}

// table is the xid-keyed transaction-correlation state described by §3
// and §4.6. It is touched only by the single dispatcher goroutine that
// owns an Agent, so it carries no internal locking of its own.
type table map[int64]entry

func newTable() table { return make(table) }

// expire removes every entry older than Timeout as of now.
func (t table) expire(now time.Time) {
	for xid, e := range t {
		if now.Sub(e.stamp) >= Timeout {
			delete(t, xid)
		}
	}
}
