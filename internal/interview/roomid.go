package interview

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// NewRoomID returns a random, memorable room id made of four words drawn
// from four different lists, e.g. "kitten-waffle-stardust-happy".
func NewRoomID() string {
	lists := [][]string{animals, dishes, firstNames, randomWords, adjectives, extras}

	words := make([]string, 0, 4)
	for _, i := range pickDistinct(len(lists), 4) {
		words = append(words, lists[i][randomIndex(len(lists[i]))])
	}
	return strings.Join(words, "-")
}

func pickDistinct(n, k int) []int {
	picked := make([]int, 0, k)
	used := make(map[int]bool, k)
	for len(picked) < k {
		i := randomIndex(n)
		if !used[i] {
			used[i] = true
			picked = append(picked, i)
		}
	}
	return picked
}

func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic("interview: random source failed: " + err.Error())
	}
	return int(n.Int64())
}

var animals = []string{
	"kitten", "puppy", "bunny", "panda", "koala", "fox", "otter", "hedgehog", "squirrel", "hamster",
	"chick", "duckling", "fawn", "foal", "lamb", "calf", "porcupine", "raccoon", "skunk", "mole",
	"mouse", "rat", "ferret", "weasel", "beaver", "seahorse", "starfish", "dolphin", "whale", "narwhal",
	"penguin", "flamingo", "pelican", "swallow", "sparrow", "robin", "toucan", "parrot", "canary", "cockatoo",
}

var dishes = []string{
	"pancake", "waffle", "sushi", "ramen", "curry", "taco", "burrito", "biryani", "paella", "risotto",
	"lasagna", "pizza", "burger", "salad", "soup", "stew", "dumpling", "noodle", "omelette", "quiche",
	"sandwich", "kebab", "shawarma", "fondue", "pierogi", "gnocchi", "falafel", "samosa", "poutine", "dimsum",
}

var firstNames = []string{
	"alice", "bob", "charlie", "daisy", "ella", "finn", "grace", "henry", "isla", "jack",
	"kai", "luna", "mia", "noah", "olivia", "peter", "quinn", "rachel", "sam", "tina",
	"uma", "victor", "winnie", "xavier", "yara", "zoe", "aaron", "bella", "carlos", "diana",
}

var randomWords = []string{
	"sunbeam", "stardust", "pepper", "muffin", "bubble", "sprout", "glimmer", "whisker", "echo", "jelly",
	"marble", "maple", "cocoa", "hazel", "breeze", "meadow", "willow", "ember", "peppermint", "cinnamon",
	"poppy", "lucky", "pixel", "biscuit", "cupcake", "nugget", "crumb", "toffee", "sprinkle", "twig",
}

// Adjectives and extras are used to deterministically create unique additional words
var adjectives = []string{
	"tiny", "happy", "sleepy", "fluffy", "sparkly", "cheery", "silly", "jolly", "cozy", "shiny",
	"golden", "silver", "crimson", "emerald", "purple", "blue", "red", "green", "bright", "gentle",
	"brave", "calm", "swift", "silent", "noisy", "bouncy", "fuzzy", "plucky", "merry", "peppy",
}

var extras = []string{
	"dragon", "unicorn", "griffin", "phoenix", "fairy", "gnome", "sprite", "pixie", "mermaid", "elf",
	"hobbit", "otterly", "purr", "meow", "woof", "chirp", "splash", "drizzle", "thimble", "button",
	"lantern", "puddle", "pebble", "cottage", "rocket", "comet", "orbit", "nebula", "canyon", "ridge",
}
