package employee

type CreateEmployeeRequest struct {
	Name       string `form:"name" json:"name" binding:"required"`
	Email      string `form:"email" json:"email" binding:"required,email"`
	Department string `form:"department" json:"department" binding:"omitempty,oneof=None HR IT Payroll Admin"`
}

type UpdateEmployeeRequest struct {
	Name       string `form:"name" json:"name" binding:"required"`
	Email      string `form:"email" json:"email" binding:"required,email"`
	Department string `form:"department" json:"department" binding:"omitempty,oneof=None HR IT Payroll Admin"`
}

type EmployeeResponse struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	PhotoPath  string `json:"photo_path,omitempty"`
	// EncryptedID is the opaque route token for this employee. It is derived
	// per response and never persisted.
	EncryptedID string `json:"encrypted_id"`
}

// EmployeeEditResponse pre-populates the edit form with current values.
type EmployeeEditResponse struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Department        string `json:"department"`
	ExistingPhotoPath string `json:"existing_photo_path,omitempty"`
}
