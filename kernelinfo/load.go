package kernelinfo

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"govmi/guest"
)

var (
	// ErrUnknownProfile is returned when the requested group is not present
	// in the config file.
	ErrUnknownProfile = errors.New("unknown kernel profile group")

	// ErrMissingField is returned when a mandatory key is absent from the
	// selected group.
	ErrMissingField = errors.New("missing required kernel info field")
)

// field maps one config key to one KernelInfo slot. Several structures were
// renamed across kernel generations, so a field may accept alternate key
// spellings; the first key is the canonical name recorded in the supplied set.
type field struct {
	keys     []string
	required bool
	set      func(ki *KernelInfo, v int64)
}

func schema() []field {
	return []field{
		{keys: []string{"version.a"}, required: true, set: func(ki *KernelInfo, v int64) { ki.Version.A = int(v) }},
		{keys: []string{"version.b"}, required: true, set: func(ki *KernelInfo, v int64) { ki.Version.B = int(v) }},
		{keys: []string{"version.c"}, required: true, set: func(ki *KernelInfo, v int64) { ki.Version.C = int(v) }},

		{keys: []string{"task.init_addr"}, set: func(ki *KernelInfo, v int64) { ki.Task.InitAddr = guest.Addr(uint64(v)) }},
		{keys: []string{"task.size"}, set: func(ki *KernelInfo, v int64) { ki.Task.Size = uint64(v) }},
		{keys: []string{"task.task_offset"}, set: func(ki *KernelInfo, v int64) { ki.Task.TaskOffset = v }},
		{keys: []string{"task.tasks_offset", "task.next_task_offset"}, required: true, set: func(ki *KernelInfo, v int64) {
			ki.Task.TasksOffset = v
			ki.Task.NextTaskOffset = v
		}},
		{keys: []string{"task.pid_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.Task.PIDOffset = v }},
		{keys: []string{"task.tgid_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.Task.TGIDOffset = v }},
		{keys: []string{"task.group_leader_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.Task.GroupLeaderOffset = v }},
		{keys: []string{"task.thread_group_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.Task.ThreadGroupOffset = v }},
		{keys: []string{"task.real_parent_offset", "task.p_opptr_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.Task.RealParentOffset = v }},
		{keys: []string{"task.parent_offset", "task.p_pptr_offset"}, set: func(ki *KernelInfo, v int64) { ki.Task.ParentOffset = v }},
		{keys: []string{"task.mm_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.Task.MMOffset = v }},
		{keys: []string{"task.stack_offset"}, set: func(ki *KernelInfo, v int64) { ki.Task.StackOffset = v }},
		{keys: []string{"task.real_cred_offset"}, set: func(ki *KernelInfo, v int64) { ki.Task.RealCredOffset = v }},
		{keys: []string{"task.cred_offset"}, set: func(ki *KernelInfo, v int64) { ki.Task.CredOffset = v }},
		{keys: []string{"task.comm_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.Task.CommOffset = v }},
		{keys: []string{"task.comm_size"}, required: true, set: func(ki *KernelInfo, v int64) { ki.Task.CommSize = uint64(v) }},
		{keys: []string{"task.files_offset"}, set: func(ki *KernelInfo, v int64) { ki.Task.FilesOffset = v }},

		{keys: []string{"cred.uid_offset"}, set: func(ki *KernelInfo, v int64) { ki.Cred.UIDOffset = v }},
		{keys: []string{"cred.gid_offset"}, set: func(ki *KernelInfo, v int64) { ki.Cred.GIDOffset = v }},
		{keys: []string{"cred.euid_offset"}, set: func(ki *KernelInfo, v int64) { ki.Cred.EUIDOffset = v }},
		{keys: []string{"cred.egid_offset"}, set: func(ki *KernelInfo, v int64) { ki.Cred.EGIDOffset = v }},

		{keys: []string{"mm.size"}, set: func(ki *KernelInfo, v int64) { ki.MM.Size = uint64(v) }},
		{keys: []string{"mm.mmap_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.MM.MmapOffset = v }},
		{keys: []string{"mm.pgd_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.MM.PGDOffset = v }},
		{keys: []string{"mm.arg_start_offset"}, set: func(ki *KernelInfo, v int64) { ki.MM.ArgStartOffset = v }},
		{keys: []string{"mm.start_brk_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.MM.StartBrkOffset = v }},
		{keys: []string{"mm.brk_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.MM.BrkOffset = v }},
		{keys: []string{"mm.start_stack_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.MM.StartStackOffset = v }},

		{keys: []string{"vma.size"}, set: func(ki *KernelInfo, v int64) { ki.VMA.Size = uint64(v) }},
		{keys: []string{"vma.vm_mm_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.VMA.VMMMOffset = v }},
		{keys: []string{"vma.vm_start_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.VMA.VMStartOffset = v }},
		{keys: []string{"vma.vm_end_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.VMA.VMEndOffset = v }},
		{keys: []string{"vma.vm_next_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.VMA.VMNextOffset = v }},
		{keys: []string{"vma.vm_file_offset"}, required: true, set: func(ki *KernelInfo, v int64) { ki.VMA.VMFileOffset = v }},
		{keys: []string{"vma.vm_flags_offset"}, set: func(ki *KernelInfo, v int64) { ki.VMA.VMFlagsOffset = v }},

		{keys: []string{"fs.f_path_dentry_offset", "fs.f_dentry_offset"}, set: func(ki *KernelInfo, v int64) { ki.FS.FDentryOffset = v }},
		{keys: []string{"fs.f_path_mnt_offset", "fs.f_vfsmnt_offset"}, set: func(ki *KernelInfo, v int64) { ki.FS.FMntOffset = v }},
		{keys: []string{"fs.f_pos_offset"}, set: func(ki *KernelInfo, v int64) { ki.FS.FPosOffset = v }},
		{keys: []string{"fs.fdt_offset"}, set: func(ki *KernelInfo, v int64) { ki.FS.FdtOffset = v }},
		{keys: []string{"fs.fdtab_offset"}, set: func(ki *KernelInfo, v int64) { ki.FS.FdtabOffset = v }},
		{keys: []string{"fs.fd_offset"}, set: func(ki *KernelInfo, v int64) { ki.FS.FdOffset = v }},

		{keys: []string{"qstr.size"}, set: func(ki *KernelInfo, v int64) { ki.Qstr.Size = uint64(v) }},
		{keys: []string{"qstr.name_offset"}, set: func(ki *KernelInfo, v int64) { ki.Qstr.NameOffset = v }},

		{keys: []string{"path.d_name_offset"}, set: func(ki *KernelInfo, v int64) { ki.Path.DNameOffset = v }},
		{keys: []string{"path.d_iname_offset"}, set: func(ki *KernelInfo, v int64) { ki.Path.DINameOffset = v }},
		{keys: []string{"path.d_parent_offset"}, set: func(ki *KernelInfo, v int64) { ki.Path.DParentOffset = v }},
		{keys: []string{"path.d_op_offset"}, set: func(ki *KernelInfo, v int64) { ki.Path.DOpOffset = v }},
		{keys: []string{"path.d_dname_offset"}, set: func(ki *KernelInfo, v int64) { ki.Path.DDnameOffset = v }},
		{keys: []string{"path.mnt_root_offset"}, set: func(ki *KernelInfo, v int64) { ki.Path.MntRootOffset = v }},
		{keys: []string{"path.mnt_parent_offset"}, set: func(ki *KernelInfo, v int64) { ki.Path.MntParentOffset = v }},
		{keys: []string{"path.mnt_mountpoint_offset"}, set: func(ki *KernelInfo, v int64) { ki.Path.MntMountpointOffset = v }},
	}
}

// Load reads the offset table for one kernel build from an INI-style config
// file with one section per build. Optional keys default to zero with their
// supplied bit cleared.
func Load(path, group string) (*KernelInfo, error) {
	// Group names and keys both contain dots ("debian-3.16", "task.pid_offset"),
	// so the default key delimiter would split them apart.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read kernel config %s: %w", path, err)
	}

	sub := v.Sub(group)
	if sub == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, group)
	}

	ki := &KernelInfo{supplied: make(map[string]bool)}
	if sub.IsSet("name") {
		ki.Name = sub.GetString("name")
		ki.supplied["name"] = true
	} else {
		ki.Name = group
	}

	for _, f := range schema() {
		found := false
		for _, key := range f.keys {
			if sub.IsSet(key) {
				f.set(ki, sub.GetInt64(key))
				ki.supplied[f.keys[0]] = true
				found = true
				break
			}
		}
		if !found && f.required {
			return nil, fmt.Errorf("%w: %s (group %q)", ErrMissingField, f.keys[0], group)
		}
	}

	return ki, nil
}
