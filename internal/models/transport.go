package models

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type BookmarkCreateReq struct {
	URL         string   `json:"url" validate:"required"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Favicon     string   `json:"favicon"`
	Screenshot  string   `json:"screenshot"`
	Tags        []string `json:"tags"`
	TagPaths    []string `json:"tagPaths"`
	TagIDs      []uint64 `json:"tagIds"`
}

type BookmarkUpdateReq struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Favicon     string    `json:"favicon"`
	Screenshot  string    `json:"screenshot"`
	TagIDs      *[]uint64 `json:"tagIds"`
}

type BookmarkListReq struct {
	Search   string  `query:"search" json:"search"`
	TagID    *uint64 `query:"tagId" json:"tagId"`
	MenuPath string  `query:"menuPath" json:"menuPath"`
	Limit    *int    `query:"limit" json:"limit"`
	Offset   *int    `query:"offset" json:"offset"`
}

type TagUpdateReq struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

type AISettingsReq struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"maxTokens"`
}
