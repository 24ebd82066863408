package redis

import "fmt"

// repeatKey is the Hash of repeatable jobs: {prefix}{queue}:repeat
func (b *Backend) repeatKey(q string) string { return b.prefix + q + ":repeat" }

// waitKey is the List of triggered jobs: {prefix}{queue}:wait
func (b *Backend) waitKey(q string) string { return b.prefix + q + ":wait" }

// lockKey holds the token of the worker running a job: {prefix}{queue}:lock
func (b *Backend) lockKey(q string) string { return b.prefix + q + ":lock" }

// fireKey marks a repeatable job activation as claimed by one instance.
func (b *Backend) fireKey(q, jobKey string, at int64) string {
	return fmt.Sprintf("%s%s:fire:%s:%d", b.prefix, q, jobKey, at)
}
