package inbound

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

func (ChatResponse) Message() string { return "OK" }
