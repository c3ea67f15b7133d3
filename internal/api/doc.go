// Package api — служебный HTTP-интерфейс процессора: health-проба
// для супервизора и endpoint метрик Prometheus. Бизнес-операции
// через HTTP не выполняются — задачи приходят из очереди.
package api
