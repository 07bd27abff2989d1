package httpapi

type registerUserRequest struct {
	PrivateKey *string `json:"private_key,omitempty"`
}

// updateUserRequest leaves fields that are absent or null untouched.
type updateUserRequest struct {
	PrivateKey *string `json:"private_key"`
}

type submitScoreRequest struct {
	Score int `json:"score"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}
