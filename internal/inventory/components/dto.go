package components

import "time"

// ===== Requests =====

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateComponentRequest struct {
	SerialNumber  string  `json:"serial_number" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	CategoryID    int64   `json:"category_id" binding:"required"`
	Description   string  `json:"description"`
	BoxNumber     *string `json:"box_number,omitempty"`
	DatasheetLink string  `json:"datasheet_link"`
	Quantity      int     `json:"quantity"`
	Location      string  `json:"location"`
}

type UpdateComponentRequest struct {
	SerialNumber  *string `json:"serial_number,omitempty"`
	Name          *string `json:"name,omitempty"`
	CategoryID    *int64  `json:"category_id,omitempty"`
	Description   *string `json:"description,omitempty"`
	BoxNumber     *string `json:"box_number,omitempty"`
	DatasheetLink *string `json:"datasheet_link,omitempty"`
	Quantity      *int    `json:"quantity,omitempty"`
	Location      *string `json:"location,omitempty"`
}

// ===== Responses =====

type CategoryResponse struct {
	CategoryID  int64  `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ComponentResponse struct {
	ComponentID   int64     `json:"component_id"`
	SerialNumber  string    `json:"serial_number"`
	Name          string    `json:"name"`
	CategoryID    int64     `json:"category_id"`
	CategoryName  string    `json:"category_name"`
	Description   string    `json:"description"`
	BoxNumber     *string   `json:"box_number"`
	DatasheetLink string    `json:"datasheet_link"`
	Quantity      int       `json:"quantity"`
	Location      string    `json:"location"`
	LastUpdated   time.Time `json:"last_updated"`
}

type ComponentDetailResponse struct {
	ComponentResponse
	OpenLoans []OpenLoan `json:"open_loans"`
}

type ListResult struct {
	Items      []ComponentResponse `json:"items"`
	Total      int64               `json:"total"`
	NextOffset int                 `json:"next_offset"`
}
