package models

import "time"

type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}

type Channel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Message is immutable once stored. ID is assigned by the store and grows
// with send order inside a channel.
type Message struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Time      time.Time `json:"time"`
	UserID    int64     `json:"user_id"`
	ChannelID int64     `json:"channel_id"`
}

// AuthoredMessage is a stored message joined with its author.
type AuthoredMessage struct {
	Message
	Author User
}

// MessageView is the history entry sent back to clients.
type MessageView struct {
	UserName    string `json:"userName"`
	UserPicture string `json:"userPicture"`
	Content     string `json:"content"`
	Time        string `json:"time"`
}

const (
	EventAnnounceChannel = "announce channel"
	EventAnnounceMessage = "announce message"
)

// Event is the frame pushed to every live session.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

type ChannelAnnouncement struct {
	ChannelName string `json:"channelName"`
}

type MessageAnnouncement struct {
	User           string `json:"user"`
	UserPicture    string `json:"userPicture"`
	Time           string `json:"time"`
	Channel        string `json:"channel"`
	MessageContent string `json:"messageContent"`
}
