package game

import (
	"math/rand"
	"strings"
)

// WordSource produces the candidate words offered to a drawer. custom words
// are mixed in per candidate with probability customPct/100.
type WordSource interface {
	Offer(count int, custom []string, customPct int) []string
}

type wordSource struct{}

func NewWordSource() WordSource {
	return wordSource{}
}

func (wordSource) Offer(count int, custom []string, customPct int) []string {
	if count < 1 {
		count = 1
	}
	offer := make([]string, 0, count)
	seen := make(map[string]bool, count)

	// Duplicates are resampled; the attempt cap keeps a one-word custom list
	// at 100% probability from spinning forever.
	for attempts := 0; len(offer) < count && attempts < count*32; attempts++ {
		word := pickWord(custom, customPct)
		key := strings.ToLower(word)
		if seen[key] {
			continue
		}
		seen[key] = true
		offer = append(offer, word)
	}

	// Top up from the builtin list when a tiny custom pool ran dry.
	for _, word := range builtinWords {
		if len(offer) == count {
			break
		}
		key := strings.ToLower(word)
		if !seen[key] {
			seen[key] = true
			offer = append(offer, word)
		}
	}
	return offer
}

func pickWord(custom []string, customPct int) string {
	if len(custom) > 0 && rand.Intn(100) < customPct {
		return custom[rand.Intn(len(custom))]
	}
	return builtinWords[rand.Intn(len(builtinWords))]
}

var builtinWords = []string{
	"apple", "anchor", "airplane", "alarm", "ambulance", "angel", "ant",
	"backpack", "balloon", "banana", "baseball", "basket", "beach", "bear",
	"bee", "bell", "bicycle", "bird", "blanket", "boat", "book", "bottle",
	"bridge", "broom", "bucket", "butterfly", "cactus", "cake", "camera",
	"campfire", "candle", "canoe", "carrot", "castle", "cat", "caterpillar",
	"chair", "cheese", "cherry", "chicken", "church", "circus", "cloud",
	"clown", "compass", "computer", "cookie", "couch", "cow", "crab",
	"crayon", "crocodile", "crown", "cupcake", "curtain", "dentist",
	"diamond", "dinosaur", "dolphin", "donut", "dragon", "drum", "duck",
	"eagle", "earring", "elephant", "envelope", "eskimo", "eyebrow",
	"feather", "fence", "firefighter", "fireworks", "fish", "flag",
	"flamingo", "flashlight", "flower", "fork", "fountain", "fox", "frog",
	"garden", "ghost", "giraffe", "glasses", "glove", "grapes", "guitar",
	"hamburger", "hammer", "hammock", "hat", "hedgehog", "helicopter",
	"honey", "horse", "hospital", "hotdog", "iceberg", "igloo", "island",
	"jacket", "jellyfish", "jigsaw", "juggler", "kangaroo", "kettle", "key",
	"kite", "kitten", "koala", "ladder", "ladybug", "lamp", "lantern",
	"lemon", "library", "lighthouse", "lightning", "lion", "lizard",
	"lobster", "magician", "mailbox", "map", "mermaid", "microphone",
	"monkey", "moon", "mosquito", "mountain", "mushroom", "mustache",
	"needle", "nest", "ninja", "octopus", "orange", "ostrich", "owl",
	"paintbrush", "palace", "pancake", "panda", "parachute", "parrot",
	"peacock", "pencil", "penguin", "piano", "pillow", "pineapple",
	"pirate", "pizza", "popcorn", "pretzel", "pumpkin", "puppet", "pyramid",
	"rabbit", "raccoon", "rainbow", "robot", "rocket", "rooster", "sailboat",
	"sandcastle", "sandwich", "saxophone", "scarecrow", "scissors",
	"scooter", "seahorse", "shark", "sheep", "shovel", "skateboard",
	"skeleton", "sloth", "snail", "snake", "snowman", "spaceship", "spider",
	"sponge", "squirrel", "starfish", "strawberry", "submarine", "suitcase",
	"sunflower", "sunglasses", "swan", "sword", "taco", "teapot",
	"telescope", "tent", "tiger", "toaster", "tomato", "toothbrush",
	"tornado", "tractor", "train", "treasure", "trophy", "trumpet",
	"turtle", "umbrella", "unicorn", "vacuum", "violin", "volcano",
	"waffle", "walrus", "waterfall", "watermelon", "whale", "wheelbarrow",
	"windmill", "wizard", "wolf", "zebra", "zipper",
}
