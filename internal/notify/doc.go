// Package notify delivers commute alerts. Channels implement the Notifier
// interface; Mailjet email is the primary channel, with Slack, Teams and
// generic HTTP webhooks as additional targets. A channel whose credentials
// are not configured is simply absent — the checker treats an empty channel
// list as a no-op, not an error.
package notify
