package cache_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/TemirB/usercache/internal/cache"
)

func Example() {
	users := map[uint32]string{1: "Frank Sinatra", 5: "Darth Vader", 10: "John Lennon"}
	errUnknown := errors.New("unknown user")

	c, err := cache.New[uint32, string](cache.FetcherFunc[uint32, string](
		func(_ context.Context, id uint32) (string, error) {
			name, ok := users[id]
			if !ok {
				return "", errUnknown
			}
			return name, nil
		}),
		cache.WithCapacity[uint32, string](2),
	)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	for _, id := range []uint32{1, 5, 1, 10} {
		name, hit, _ := c.Lookup(ctx, id)
		fmt.Printf("%d %s hit=%v\n", id, name, hit)
	}
	fmt.Println(c.Keys())

	delete(users, 5)
	_, err = c.Get(ctx, 5)
	fmt.Println(errors.Is(err, errUnknown))

	// Output:
	// 1 Frank Sinatra hit=false
	// 5 Darth Vader hit=false
	// 1 Frank Sinatra hit=true
	// 10 John Lennon hit=false
	// [10 1]
	// true
}
