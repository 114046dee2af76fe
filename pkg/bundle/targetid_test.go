package bundle

import "testing"

func TestParseTargetId(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want TargetId
	}{
		{
			name: "host triple",
			in:   "host-x86_64-unknown-linux-gnu",
			want: TargetId{Kind: "host", Triple: Triple{Arch: "x86_64", Vendor: "unknown", OS: "linux", Env: "gnu"}},
		},
		{
			name: "openmp no env",
			in:   "openmp-x86_64-pc-linux",
			want: TargetId{Kind: "openmp", Triple: Triple{Arch: "x86_64", Vendor: "pc", OS: "linux"}},
		},
		{
			name: "hip with processor id",
			in:   "hip-amdgcn-amd-amdhsa-gfx906",
			want: TargetId{Kind: "hip", Triple: Triple{Arch: "amdgcn", Vendor: "amd", OS: "amdhsa"}, ProcessorID: "gfx906"},
		},
		{
			name: "hip with processor id and features",
			in:   "hip-amdgcn-amd-amdhsa-gfx906:xnack+:sramecc-",
			want: TargetId{
				Kind:        "hip",
				Triple:      Triple{Arch: "amdgcn", Vendor: "amd", OS: "amdhsa"},
				ProcessorID: "gfx906:xnack+:sramecc-",
			},
		},
		{
			name: "cuda sm processor id",
			in:   "hip-nvptx64-nvidia-cuda-sm_70",
			want: TargetId{Kind: "hip", Triple: Triple{Arch: "nvptx64", Vendor: "nvidia", OS: "cuda"}, ProcessorID: "sm_70"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ParseTargetId(c.in)
			if got != c.want {
				t.Fatalf("ParseTargetId(%q) = %+v, want %+v", c.in, got, c.want)
			}
		})
	}
}

func TestTargetIdValid(t *testing.T) {
	if !ParseTargetId("host-x86_64-unknown-linux-gnu").Valid() {
		t.Fatal("expected valid host target id")
	}
	if ParseTargetId("bogus-x86_64-unknown-linux-gnu").Valid() {
		t.Fatal("expected invalid kind to be rejected")
	}
	if ParseTargetId("host-unknown----").Valid() {
		t.Fatal("expected unknown arch to be rejected")
	}
}

func TestTargetIdString(t *testing.T) {
	id := ParseTargetId("hip-amdgcn-amd-amdhsa-gfx906")
	want := "hip-amdgcn-amd-amdhsa--gfx906"
	if got := id.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestTripleString(t *testing.T) {
	tr := ParseTriple("x86_64-pc-linux")
	if got, want := tr.String(), "x86_64-pc-linux-"; got != want {
		t.Fatalf("Triple.String() = %q, want %q", got, want)
	}
}
