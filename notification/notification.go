// Package notification delivers alerts through multiple channels:
// email (SMTP or Resend), Slack, SMS (Twilio), and a generic webhook.
//
// Alerts carry a severity (INFO, WARNING, CRITICAL) and the Notifier
// routes each alert to the channels that severity warrants. Channels
// left unconfigured degrade to a logged warning instead of an error,
// so a service can enable only the channels it needs.
package notification
