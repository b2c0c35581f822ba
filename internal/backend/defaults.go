package backend

// builtins are the targets available without an override document.
var builtins = map[Key]Template{
	{Arch: "x86_64", Platform: "linux"}: {
		PtrInit: "mov rsi, tape",
		IncPtr:  "inc rsi",
		DecPtr:  "dec rsi",
		IncVal:  "inc byte [rsi]",
		DecVal:  "dec byte [rsi]",
		Output: `mov rax, 1
mov rdi, 1
mov rdx, 1
syscall`,
		Input: `mov rax, 0
mov rdi, 0
mov rdx, 1
syscall`,
		Exit: `mov rax, 60
xor rdi, rdi
syscall`,
		Header: `section .bss
    tape resb 30000
section .text
global _start
_start:`,
		LoopTest: "cmp byte [rsi], 0",
	},
	{Arch: "arm64", Platform: "linux"}: {
		PtrInit: "adr x19, tape",
		IncPtr:  "add x19, x19, #1",
		DecPtr:  "sub x19, x19, #1",
		IncVal: `ldrb w0, [x19]
add w0, w0, #1
strb w0, [x19]`,
		DecVal: `ldrb w0, [x19]
sub w0, w0, #1
strb w0, [x19]`,
		Output: `mov x0, #1
mov x1, x19
mov x2, #1
mov x8, #64
svc 0`,
		Input: `mov x0, #0
mov x1, x19
mov x2, #1
mov x8, #63
svc 0`,
		Exit: `mov x8, #93
mov x0, #0
svc 0`,
		Header: `.bss
    tape: .space 30000
.text
.global _start
_start:`,
		LoopTest: `ldrb w0, [x19]
cmp w0, #0`,
	},
	{Arch: "x86_64", Platform: "windows"}: {
		PtrInit: "mov rsi, tape",
		IncPtr:  "inc rsi",
		DecPtr:  "dec rsi",
		IncVal:  "inc byte [rsi]",
		DecVal:  "dec byte [rsi]",
		Output: `movzx rdx, byte [rsi]
lea rcx, [rel fmt]
xor rax, rax
call printf`,
		Input: `call getchar
mov [rsi], al`,
		Exit: "ret",
		Header: `section .data
    fmt db "%c", 0
section .bss
    tape resb 30000
section .text
global main
extern printf, getchar
main:`,
		LoopTest: "cmp byte [rsi], 0",
	},
	{Arch: "riscv64", Platform: "linux"}: {
		PtrInit: "la s1, tape",
		IncPtr:  "addi s1, s1, 1",
		DecPtr:  "addi s1, s1, -1",
		IncVal: `lbu t0, 0(s1)
addi t0, t0, 1
sb t0, 0(s1)`,
		DecVal: `lbu t0, 0(s1)
addi t0, t0, -1
sb t0, 0(s1)`,
		Output: `li a0, 1
mv a1, s1
li a2, 1
li a7, 64
ecall`,
		Input: `li a0, 0
mv a1, s1
li a2, 1
li a7, 63
ecall`,
		Exit: `li a0, 0
li a7, 93
ecall`,
		Header: `.bss
    tape: .space 30000
.text
.global _start
_start:`,
		LoopTest: "lbu t0, 0(s1)",
	},
}
