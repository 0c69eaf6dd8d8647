package platform

import "fmt"

// RoleSet carries the faction's role ids, used to build channel access
// overwrites. Member is the faction-wide role every member holds.
type RoleSet struct {
	Member   string
	Midcomm  string
	Hicomm   string
	Director string
}

// AccessPreset names a channel access layout.
type AccessPreset string

const (
	PresetOwnerDirectorOnly AccessPreset = "owner_director_only"
	PresetHicommReadWrite   AccessPreset = "hicomm_readwrite"
	PresetMidcommReadWrite  AccessPreset = "midcomm_readwrite"
	PresetAllReadWrite      AccessPreset = "all_readwrite"
	PresetAnnouncements     AccessPreset = "announcements"
	PresetVoiceAll          AccessPreset = "voice_all"
	PresetVoiceMidcomm      AccessPreset = "voice_midcomm"
)

// Presets lists every valid access preset.
var Presets = []AccessPreset{
	PresetOwnerDirectorOnly,
	PresetHicommReadWrite,
	PresetMidcommReadWrite,
	PresetAllReadWrite,
	PresetAnnouncements,
	PresetVoiceAll,
	PresetVoiceMidcomm,
}

// ValidPreset reports whether p names a known preset.
func ValidPreset(p AccessPreset) bool {
	for _, known := range Presets {
		if p == known {
			return true
		}
	}
	return false
}

// denyEveryone hides the channel from anyone outside the listed roles.
func denyEveryone() Overwrite {
	return Overwrite{RoleID: "", View: false, Write: false, Speak: false}
}

// Build returns the channel kind and access overwrites for the preset.
func (p AccessPreset) Build(roles RoleSet) (ChannelKind, []Overwrite, error) {
	switch p {
	case PresetOwnerDirectorOnly:
		return ChannelText, []Overwrite{
			denyEveryone(),
			{RoleID: roles.Director, View: true, Write: true},
		}, nil
	case PresetHicommReadWrite:
		return ChannelText, []Overwrite{
			denyEveryone(),
			{RoleID: roles.Hicomm, View: true, Write: true},
			{RoleID: roles.Director, View: true, Write: true},
		}, nil
	case PresetMidcommReadWrite:
		return ChannelText, []Overwrite{
			denyEveryone(),
			{RoleID: roles.Midcomm, View: true, Write: true},
			{RoleID: roles.Hicomm, View: true, Write: true},
			{RoleID: roles.Director, View: true, Write: true},
		}, nil
	case PresetAllReadWrite:
		return ChannelText, []Overwrite{
			denyEveryone(),
			{RoleID: roles.Member, View: true, Write: true},
		}, nil
	case PresetAnnouncements:
		// Members read, leadership posts.
		return ChannelText, []Overwrite{
			denyEveryone(),
			{RoleID: roles.Member, View: true, Write: false},
			{RoleID: roles.Hicomm, View: true, Write: true},
			{RoleID: roles.Director, View: true, Write: true},
		}, nil
	case PresetVoiceAll:
		return ChannelVoice, []Overwrite{
			denyEveryone(),
			{RoleID: roles.Member, View: true, Speak: true},
		}, nil
	case PresetVoiceMidcomm:
		return ChannelVoice, []Overwrite{
			denyEveryone(),
			{RoleID: roles.Midcomm, View: true, Speak: true},
			{RoleID: roles.Hicomm, View: true, Speak: true},
			{RoleID: roles.Director, View: true, Speak: true},
		}, nil
	default:
		return "", nil, fmt.Errorf("unknown access preset %q", p)
	}
}
