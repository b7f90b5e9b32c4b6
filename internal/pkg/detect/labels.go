package detect

import "strings"

// classCategory maps detector class names to the drawing they belong to.
var classCategory = map[string]string{
	"집": "house", "지붕": "house", "집벽": "house", "문": "house", "창문": "house",
	"굴뚝": "house", "연기": "house", "울타리": "house", "길": "house", "연못": "house",
	"산": "house", "꽃": "house", "잔디": "house", "태양": "house",

	"나무": "tree", "기둥": "tree", "수관": "tree", "가지": "tree", "뿌리": "tree",
	"나뭇잎": "tree", "열매": "tree", "그네": "tree", "새": "tree", "다람쥐": "tree",
	"구름": "tree", "달": "tree", "별": "tree",

	"사람": "person", "사람전체": "person", "머리": "person", "얼굴": "person",
	"눈": "person", "코": "person", "입": "person", "귀": "person", "머리카락": "person",
	"목": "person", "상체": "person", "팔": "person", "손": "person", "다리": "person",
	"발": "person", "단추": "person", "주머니": "person", "운동화": "person", "남자구두": "person", "여자구두": "person",
}

// Category returns "house", "tree", "person" or "" for unknown classes.
func Category(className string) string {
	name := strings.TrimSpace(className)
	if c, ok := classCategory[name]; ok {
		return c
	}
	switch strings.ToLower(name) {
	case "house", "roof", "door", "window", "chimney":
		return "house"
	case "tree", "trunk", "branch", "root", "leaf", "crown":
		return "tree"
	case "person", "head", "face", "eye", "nose", "mouth", "arm", "leg", "hand", "foot":
		return "person"
	}
	return ""
}

// GroupLabels buckets labels by category, keeping input order.
func GroupLabels(labels []string) map[string][]string {
	out := make(map[string][]string, 3)
	for _, l := range labels {
		c := Category(l)
		if c == "" {
			continue
		}
		out[c] = append(out[c], l)
	}
	return out
}
