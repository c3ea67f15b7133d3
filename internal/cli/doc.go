// Package cli — операторские команды valora-cli. В отличие от
// процессора, CLI работает с инфраструктурой напрямую: публикует
// задания в брокер, читает записи из базы, просматривает DLQ
// и декларирует топологию очередей.
package cli
