package services

import "github.com/google/wire"

// ProviderSet 暴露服务层构造器。
var ProviderSet = wire.NewSet(
	NewVideoCommandService,
	NewVideoQueryService,
	NewRatingRanker,
	wire.Bind(new(Ranker), new(RatingRanker)),
)
