package storage

import (
	"fmt"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// patternCacheSize bounds the number of compiled REGEXP patterns kept around.
// A resolution issues at most three distinct patterns.
const patternCacheSize = 512

var patterns = newPatternCache(patternCacheSize)

// patternCache memoizes compiled patterns for the SQL REGEXP function
type patternCache struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

func newPatternCache(size int) *patternCache {
	cache, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create pattern cache: %v", err))
	}
	return &patternCache{cache: cache}
}

func (p *patternCache) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := p.cache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	p.cache.Add(pattern, re)
	return re, nil
}

// matchPattern implements `value REGEXP pattern`. NULL values never match.
func matchPattern(pattern string, value interface{}) (bool, error) {
	var text string
	switch v := value.(type) {
	case nil:
		return false, nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		text = fmt.Sprint(v)
	}

	re, err := patterns.compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid REGEXP pattern %q: %w", pattern, err)
	}
	return re.MatchString(text), nil
}
