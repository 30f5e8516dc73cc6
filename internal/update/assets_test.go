package update

import "testing"

func multiPlatformRelease() *ReleaseInfo {
	return &ReleaseInfo{
		Version: "1.3.0",
		Assets: []Asset{
			{Name: "checksums.txt"},
			{Name: "noveldl_1.3.0_windows_amd64_setup.exe"},
			{Name: "noveldl_1.3.0_windows_amd64.zip"},
			{Name: "noveldl_1.3.0_linux_amd64.tar.gz"},
			{Name: "noveldl_1.3.0_linux_arm64.tar.gz"},
			{Name: "noveldl_1.3.0_linux_amd64.AppImage"},
			{Name: "noveldl_1.3.0_macos_arm64.dmg"},
			{Name: "noveldl_1.3.0_linux_amd64_debug.tar.gz"},
		},
	}
}

func TestSelectAsset(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
	}{
		{"windows", "amd64", "noveldl_1.3.0_windows_amd64_setup.exe"},
		{"linux", "amd64", "noveldl_1.3.0_linux_amd64.AppImage"},
		{"linux", "arm64", "noveldl_1.3.0_linux_arm64.tar.gz"},
		{"darwin", "arm64", "noveldl_1.3.0_macos_arm64.dmg"},
	}
	info := multiPlatformRelease()
	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			asset, err := SelectAsset(info, tt.goos, tt.goarch)
			if err != nil {
				t.Fatalf("SelectAsset: %v", err)
			}
			if asset.Name != tt.want {
				t.Errorf("selected %q, want %q", asset.Name, tt.want)
			}
		})
	}
}

func TestSelectAssetDebugPenalty(t *testing.T) {
	info := &ReleaseInfo{
		Version: "1.3.0",
		Assets: []Asset{
			{Name: "noveldl_linux_amd64_debug.tar.gz"},
			{Name: "noveldl_linux_amd64.tar.gz"},
		},
	}
	asset, err := SelectAsset(info, "linux", "amd64")
	if err != nil {
		t.Fatal(err)
	}
	if asset.Name != "noveldl_linux_amd64.tar.gz" {
		t.Errorf("debug build selected: %q", asset.Name)
	}
}

func TestSelectAssetFallsBackToFirst(t *testing.T) {
	info := &ReleaseInfo{
		Version: "1.3.0",
		Assets:  []Asset{{Name: "noveldl-release"}},
	}
	asset, err := SelectAsset(info, "linux", "amd64")
	if err != nil {
		t.Fatal(err)
	}
	if asset.Name != "noveldl-release" {
		t.Errorf("fallback selected %q", asset.Name)
	}
}

func TestSelectAssetEmptyRelease(t *testing.T) {
	if _, err := SelectAsset(&ReleaseInfo{Version: "1.0.0"}, "linux", "amd64"); err == nil {
		t.Error("expected error for release without assets")
	}
}
