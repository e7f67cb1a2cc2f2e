package anthropic

// BuildCachedSystemBlocks constructs system content blocks with a cache
// breakpoint set to the given TTL ("5m" or "1h"). The business context is
// repeated verbatim across every stage of one lead, so stages mark it
// cacheable.
func BuildCachedSystemBlocks(text, ttl string) []SystemBlock {
	if text == "" {
		return nil
	}
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: ttl,
			},
		},
	}
}
