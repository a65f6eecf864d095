package model

// TopicKey identifies one accumulator
type TopicKey struct {
	UserID  string `json:"userId"`
	TopicID string `json:"topicId"`
}

// TimeUpdate is pushed to the client on start, every tick and on stop
type TimeUpdate struct {
	UserID    string `json:"userId"`
	TopicID   string `json:"topicId"`
	TotalTime int    `json:"totalTime"` // seconds
}

// TopicRequest is the payload of startTopic, stopTopic and getTimeSpent events
type TopicRequest struct {
	UserID  string `json:"userId"`
	TopicID string `json:"topicId"`
}

// TimeSpentReply answers a getTimeSpent event; TimeSpent is null when nothing is recorded
type TimeSpentReply struct {
	UserID    string `json:"userId"`
	TopicID   string `json:"topicId"`
	TimeSpent *int   `json:"timeSpent"`
}
