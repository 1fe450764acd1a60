package models

import "errors"

var (
	ErrUserNotFound     = errors.New("пользователь не найден")
	ErrEmailTaken       = errors.New("пользователь с таким email уже существует")
	ErrInvalidPassword  = errors.New("неверный пароль")
	ErrInvalidToken     = errors.New("недействительный токен")
	ErrPostNotFound     = errors.New("пост не найден")
	ErrForbidden        = errors.New("доступ запрещен")
	ErrInvalidCategory  = errors.New("неизвестная категория")
	ErrInvalidRecruit   = errors.New("количество участников должно быть не меньше 1")
	ErrInvalidCost      = errors.New("стоимость не может быть отрицательной")
	ErrImageNotFound    = errors.New("изображение не найдено")
	ErrUnsupportedImage = errors.New("неподдерживаемый тип файла")
	ErrImageTooLarge    = errors.New("размер файла превышает допустимый")

	ErrAlreadyJoined     = errors.New("пользователь уже участвует")
	ErrRecruitmentFull   = errors.New("набор участников закрыт")
	ErrNotJoined         = errors.New("пользователь не участвует")
	ErrAuthorCannotLeave = errors.New("автор не может покинуть свою встречу")
	ErrRecruitBelowCount = errors.New("набор не может быть меньше числа участников")

	ErrRoomNotFound   = errors.New("чат не найден")
	ErrNotRoomMember  = errors.New("пользователь не состоит в чате")
	ErrSelfChat       = errors.New("нельзя создать чат с самим собой")
	ErrEmptyMessage   = errors.New("сообщение не может быть пустым")
	ErrStoreTimeout   = errors.New("превышено время ожидания хранилища")
	ErrStorageMissing = errors.New("хранилище изображений не настроено")
)
