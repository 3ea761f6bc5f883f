//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework ApplicationServices -framework Cocoa
#import <ApplicationServices/ApplicationServices.h>
#import <Cocoa/Cocoa.h>

int checkAccessibilityPermission(int prompt) {
    NSDictionary *options = @{(__bridge id)kAXTrustedCheckOptionPrompt: prompt ? @YES : @NO};
    return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options) ? 1 : 0;
}
*/
import "C"

import "fmt"

// CheckAccessibility reports whether the app may observe global key events
func CheckAccessibility() (bool, error) {
	return C.checkAccessibilityPermission(0) == 1, nil
}

// PromptAccessibility shows the system dialog asking for accessibility access
func PromptAccessibility() error {
	C.checkAccessibilityPermission(1)
	return nil
}

// EnsurePermissions checks the accessibility permission global input
// hooks depend on and prompts for it when missing
func EnsurePermissions() error {
	axGranted, _ := CheckAccessibility()
	if !axGranted {
		fmt.Println("⚠️  Accessibility permission required to hear keys typed in other apps")
		fmt.Println("   Go to: System Settings → Privacy & Security → Accessibility")
		PromptAccessibility()
		return fmt.Errorf("accessibility permission not granted")
	}

	return nil
}
