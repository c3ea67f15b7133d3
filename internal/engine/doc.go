// Package engine реализует workflow записи оценки.
//
// Пайплайн — линейная цепочка шагов:
//
//	set_value → merge_descriptions → update_external_content →
//	generate_visualization → generate_document → complete
//
// Каждый шаг независимо возобновляем; композитный build_report
// прогоняет всю цепочку, обрываясь на первой ошибке. Статусный след
// записи (PROCESSING → ... → COMPLETED/FAILED) ведётся на каждом
// переходе и служит только для наблюдения.
//
// Движок не делает retry: повторная доставка — забота брокера,
// эскалация неудач — диспетчера (DLQ).
package engine
