package types

type UserResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type MemberResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type TaskResponse struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Order       int            `json:"order"`
	ProjectID   uint           `json:"project_id"`
	ExpiryDate  *string        `json:"expiry_date"`
	Creator     *UserResponse  `json:"creator"`
	Assignees   []UserResponse `json:"assignees"`
}

type ProjectResponse struct {
	ID          uint             `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Tasks       []TaskResponse   `json:"tasks,omitempty"`
	Members     []MemberResponse `json:"members,omitempty"`
}
