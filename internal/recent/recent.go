// Package recent реализует список «последних» значений: новое значение
// переносится в начало, дубликаты убираются, длина ограничена.
package recent

// Push возвращает новый список с item в начале. Существующее вхождение item
// удаляется, результат обрезается до limit элементов. Исходный срез не меняется.
func Push(list []string, item string, limit int) []string {
	if limit <= 0 {
		return []string{}
	}

	out := make([]string, 0, min(len(list)+1, limit))
	out = append(out, item)
	for _, v := range list {
		if len(out) == limit {
			break
		}
		if v == item || contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
