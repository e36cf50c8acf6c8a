package identity

import "time"

type IdentityResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type IdentitiesResponse struct {
	Identities []IdentityResponse `json:"identities"`
}

func ToResponse(i *Identity) IdentityResponse {
	status := "inactive"
	if i.IsActive {
		status = "active"
	}
	return IdentityResponse{
		ID:        i.ID,
		Email:     i.Email,
		Name:      i.Name,
		Role:      i.Role,
		Status:    status,
		CreatedAt: i.CreatedAt,
	}
}
