//go:generate go run go.uber.org/mock/mockgen -source=notifier.go -destination=../mocks/mock_notifier.go -package=mocks
package chat

// Notifier pushes announcements to every live session. Calls are fire and
// forget: nothing is acknowledged, retried or kept for late subscribers.
type Notifier interface {
	AnnounceChannel(channelName string)
	AnnounceMessage(userName, userPicture, time, channelName, content string)
}
