package sale

import (
	"math/big"
	"math/rand"
	"testing"

	"launchpad/native/project"
)

func TestComputeSplitAdmin(t *testing.T) {
	split, err := ComputeSplit(big.NewInt(1000), big.NewInt(7), big.NewInt(100), true, 0)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if split.Platform.Int64() != 907 || split.Seller.Sign() != 0 || split.Royalty.Int64() != 100 {
		t.Fatalf("unexpected split %+v", split)
	}
}

func TestComputeSplitRoyaltyCappedAtRemainder(t *testing.T) {
	split, err := ComputeSplit(big.NewInt(1000), big.NewInt(0), big.NewInt(900), false, 50*project.PercentScale)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if split.Platform.Int64() != 500 || split.Royalty.Int64() != 500 || split.Seller.Sign() != 0 {
		t.Fatalf("unexpected split %+v", split)
	}

	split, err = ComputeSplit(big.NewInt(10), big.NewInt(0), big.NewInt(50), true, 0)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if split.Platform.Sign() != 0 || split.Royalty.Int64() != 10 {
		t.Fatalf("admin royalty should cap at gross: %+v", split)
	}
}

func TestComputeSplitTruncatesPlatformShare(t *testing.T) {
	// 33.333333% of 100 floors to 33; the seller keeps the dust.
	split, err := ComputeSplit(big.NewInt(100), big.NewInt(0), big.NewInt(0), false, 33_333_333)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if split.Platform.Int64() != 33 || split.Seller.Int64() != 67 {
		t.Fatalf("unexpected split %+v", split)
	}
}

func TestComputeSplitRejectsPercentAboveMax(t *testing.T) {
	if _, err := ComputeSplit(big.NewInt(1), big.NewInt(0), big.NewInt(0), false, project.MaxPercent+1); err == nil {
		t.Fatalf("expected percent above 100%% to be rejected")
	}
}

func TestComputeSplitConservesValue(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	percents := []uint64{0, project.MaxPercent, 25 * project.PercentScale, 1}
	for i := 0; i < 2000; i++ {
		gross := new(big.Int).Rand(rng, new(big.Int).Lsh(big.NewInt(1), 128))
		residual := new(big.Int).Rand(rng, new(big.Int).Lsh(big.NewInt(1), 64))
		royalty := new(big.Int).Rand(rng, new(big.Int).Add(gross, big.NewInt(1)))
		percent := uint64(rng.Int63n(int64(project.MaxPercent) + 1))
		if i < len(percents) {
			percent = percents[i]
		}
		admin := rng.Intn(2) == 0

		split, err := ComputeSplit(gross, residual, royalty, admin, percent)
		if err != nil {
			t.Fatalf("split %d: %v", i, err)
		}
		want := new(big.Int).Add(gross, residual)
		if split.Total().Cmp(want) != 0 {
			t.Fatalf("split %d does not balance: %s != %s", i, split.Total(), want)
		}
		for _, share := range []*big.Int{split.Platform, split.Seller, split.Royalty} {
			if share.Sign() < 0 {
				t.Fatalf("split %d has a negative share: %+v", i, split)
			}
		}
		if split.Royalty.Cmp(royalty) > 0 {
			t.Fatalf("split %d pays more royalty than owed", i)
		}
		if admin && split.Seller.Sign() != 0 {
			t.Fatalf("split %d pays a seller on an admin project", i)
		}
	}
}
