package data

import "github.com/google/wire"

// ProviderSet 暴露数据层装配函数供 Wire 使用。
var ProviderSet = wire.NewSet(
	NewData,
	ProvideVideoRepo,
	NewMediaStore,
	NewEventPublisher,
)
