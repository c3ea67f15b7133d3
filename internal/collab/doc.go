// Package collab содержит тонкие HTTP-адаптеры внешних сервисов:
// vision-анализ, слияние текстов, CMS, рендеринг документов,
// уведомления. Никакой логики кроме транспорта — контракты
// определяет internal/engine.
package collab
