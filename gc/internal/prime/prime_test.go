package prime

import "testing"

func TestIsPrime(t *testing.T) {
	primes := map[uint64]bool{
		0: false, 1: false, 2: true, 3: true, 4: false,
		17: true, 1024: false, 2053: true, 2048: false,
	}
	for n, want := range primes {
		if got := IsPrime(n); got != want {
			t.Errorf("IsPrime(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestNext(t *testing.T) {
	cases := []struct{ in, want uint64 }{
		{0, 2}, {1, 2}, {2, 2}, {1024, 1031}, {2048, 2053},
	}
	for _, c := range cases {
		if got := Next(c.in); got != c.want {
			t.Errorf("Next(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
