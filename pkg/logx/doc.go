// Package logx configures csgobot's structured logging.
//
// It wraps zerolog so the rest of the bot logs through one small API:
//   - console output stays readable (short timestamp + short caller)
//   - file output is JSON lines
//   - warnings and errors can be mirrored to a Telegram chat (min-level + rate limited)
package logx
