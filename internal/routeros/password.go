package routeros

import (
	"crypto/rand"
	"math/big"
)

const (
	passwordLength = 15

	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!@#%^&*"
)

// GeneratePassword выдаёт пароль длины n (минимум passwordLength):
// хотя бы по одному символу каждого из четырёх классов, остальное —
// равномерно из полного алфавита, итоговый порядок перемешан.
// Источник случайности — crypto/rand.
func GeneratePassword(n int) string {
	if n < passwordLength {
		n = passwordLength
	}
	all := lowerChars + upperChars + digitChars + specialChars

	buf := make([]byte, 0, n)
	buf = append(buf,
		pick(lowerChars),
		pick(upperChars),
		pick(digitChars),
		pick(specialChars),
	)
	for len(buf) < n {
		buf = append(buf, pick(all))
	}

	// Fisher-Yates, чтобы обязательные классы не стояли всегда в начале.
	for i := len(buf) - 1; i > 0; i-- {
		j := randInt(i + 1)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

func pick(alphabet string) byte { return alphabet[randInt(len(alphabet))] }

func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand на поддерживаемых платформах не отказывает;
		// если отказал — генерировать пароль нечем.
		panic(err)
	}
	return int(v.Int64())
}
