package posixre_test

import (
	"fmt"

	"github.com/coregx/posixre"
)

func ExampleCompile() {
	re, err := posixre.Compile("([a-z]+)@([a-z]+)", posixre.Extended)
	if err != nil {
		panic(err)
	}

	regs, err := re.Exec([]byte("write to dev@example please"), 0)
	if err != nil {
		panic(err)
	}
	input := "write to dev@example please"
	fmt.Println(input[regs[0].So:regs[0].Eo])
	fmt.Println(input[regs[1].So:regs[1].Eo])
	fmt.Println(input[regs[2].So:regs[2].Eo])
	// Output:
	// dev@example
	// dev
	// example
}

func ExampleRegexp_MatchString() {
	re := posixre.MustCompile("^-?[0-9]+$", posixre.Extended)
	fmt.Println(re.MatchString("-42"))
	fmt.Println(re.MatchString("4x2"))
	// Output:
	// true
	// false
}
