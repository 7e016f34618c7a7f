// Package messages содержит тексты для пользователя на арабском и английском.
package messages

import "fmt"

// Code – идентификатор сообщения
type Code string

const (
	AuthRequired     Code = "auth_required"
	AlreadyFavorited Code = "already_favorited"
	FavoriteAdded    Code = "favorite_added"
	FavoriteRemoved  Code = "favorite_removed"
	FetchFailed      Code = "favorites_fetch_failed"
	AddFailed        Code = "favorite_add_failed"
	RemoveFailed     Code = "favorite_remove_failed"
	ResumePrompt     Code = "resume_prompt"

	LiveUpdatesStopped Code = "favorites_live_updates_stopped"
)

var catalog = map[string]map[Code]string{
	"ar": {
		AuthRequired:     "يجب تسجيل الدخول أولاً",
		AlreadyFavorited: "الإعلان موجود بالفعل في المفضلة",
		FavoriteAdded:    "تمت الإضافة إلى المفضلة",
		FavoriteRemoved:  "تمت الإزالة من المفضلة",
		FetchFailed:      "تعذر تحميل المفضلة",
		AddFailed:        "تعذرت الإضافة إلى المفضلة",
		RemoveFailed:     "تعذرت الإزالة من المفضلة",
		ResumePrompt:     "هل تريد العودة إلى %s؟",

		LiveUpdatesStopped: "توقف التحديث التلقائي للمفضلة",
	},
	"en": {
		AuthRequired:     "You must sign in first",
		AlreadyFavorited: "This listing is already in your favorites",
		FavoriteAdded:    "Added to favorites",
		FavoriteRemoved:  "Removed from favorites",
		FetchFailed:      "Could not load favorites",
		AddFailed:        "Could not add to favorites",
		RemoveFailed:     "Could not remove from favorites",
		ResumePrompt:     "Resume where you left off at %s?",

		LiveUpdatesStopped: "Live updates for favorites have stopped",
	},
}

// Text возвращает сообщение code на языке lang. Неизвестный язык даёт английский текст,
// неизвестный код возвращается как есть.
func Text(lang string, code Code, args ...any) string {
	table, ok := catalog[lang]
	if !ok {
		table = catalog["en"]
	}
	format, ok := table[code]
	if !ok {
		return string(code)
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
