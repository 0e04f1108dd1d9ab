package patients

var dogBreeds = []string{
	"말티즈",
	"푸들",
	"포메라니안",
	"치와와",
	"시츄",
	"요크셔테리어",
	"비숑 프리제",
	"골든 리트리버",
	"래브라도 리트리버",
	"웰시 코기",
	"진돗개",
	"믹스견",
	CustomBreed,
}

var catBreeds = []string{
	"코리안 숏헤어",
	"페르시안",
	"러시안 블루",
	"스코티시 폴드",
	"브리티시 숏헤어",
	"샴",
	"먼치킨",
	"벵갈",
	"랙돌",
	"노르웨이숲",
	"믹스묘",
	CustomBreed,
}

// DefaultBreeds devuelve una copia de la lista fija de la especie.
// El centinela CustomBreed siempre va al final.
func DefaultBreeds(s Species) []string {
	var src []string
	switch s {
	case SpeciesCat:
		src = catBreeds
	default:
		src = dogBreeds
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
